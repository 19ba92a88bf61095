package main

import "content_trans_api/cmd"

func main() {
	cmd.Execute()
}
