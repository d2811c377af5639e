// Command catalog syncs scraped product records into the catalog store.
package main

import "github.com/mesh-intelligence/catalog/internal/cli"

func main() {
	cli.Execute()
}
