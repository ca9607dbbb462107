// Package main 是服务端的入口点
package main

import "govchat-server/internal/cmd"

func main() {
	cmd.Execute()
}
