package main

import "github.com/ComparativeGenomicsToolkit/refalign/cmd"

func main() {
	cmd.Execute()
}
