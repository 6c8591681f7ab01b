// Package main provides the sitemapcheck CLI entrypoint.
package main

import (
	"os"

	"github.com/lukemcguire/sitemapcheck/cli"
)

func main() {
	os.Exit(cli.Execute())
}
