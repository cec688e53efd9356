package main

import "bundlecore/cmd/bundlectl"

// version can be set during build with -ldflags.
var version = "dev"

func main() {
	bundlectl.SetVersion(version)
	bundlectl.Execute()
}
