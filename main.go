package main

import (
	"os"

	"animstory/cmd"
)

//	@title			AnimStory API
//	@version		1.0
//	@description	故事、分镜图片、图生视频的生成代理接口
//	@BasePath		/

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
