package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig_Validate(t *testing.T) {
	Convey("Validate 检查端口、模式和供应商", t, func() {
		cfg := &Config{
			Server: ServerConfig{Port: 8080, Mode: "release"},
			AI:     AIConfig{Provider: "mock"},
		}
		So(cfg.Validate(), ShouldBeNil)
		So(cfg.AI.IsMock(), ShouldBeTrue)

		Convey("端口越界", func() {
			cfg.Server.Port = 70000
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("未知模式", func() {
			cfg.Server.Mode = "prod"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("未知供应商", func() {
			cfg.AI.Provider = "anthropic"
			So(cfg.Validate(), ShouldNotBeNil)
		})
	})
}
