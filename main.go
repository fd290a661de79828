// 命令行入口，子命令见 cmd 包。
package main

import "go-campaign-site/cmd"

func main() {
	cmd.Execute()
}
