package ark

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTTSClient_Synthesize(t *testing.T) {
	Convey("Synthesize 返回解码后的音频", t, func() {
		var got ttsRequest
		respBody := `{"code":3000,"message":"Success","data":"SUQz"}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(respBody))
		}))
		defer srv.Close()

		client, err := NewTTSClient(TTSConfig{APIURL: srv.URL, AccessToken: "tok", VoiceType: "BV001_streaming"})
		So(err, ShouldBeNil)

		audio, err := client.Synthesize(context.Background(), "Once upon a time")
		So(err, ShouldBeNil)
		So(string(audio), ShouldEqual, "ID3")
		So(got.Request.Text, ShouldEqual, "Once upon a time")
		So(got.Audio.VoiceType, ShouldEqual, "BV001_streaming")
		So(got.Audio.Encoding, ShouldEqual, "mp3")
		So(got.App.Cluster, ShouldEqual, "volcano_tts")
		So(got.Request.ReqID, ShouldEqual, got.User.UID)

		Convey("业务错误码返回错误", func() {
			respBody = `{"code":3050,"message":"voice not found"}`
			_, err := client.Synthesize(context.Background(), "x")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "voice not found")
		})
	})

	Convey("缺少访问令牌时无法创建客户端", t, func() {
		_, err := NewTTSClient(TTSConfig{})
		So(err, ShouldNotBeNil)
	})
}
