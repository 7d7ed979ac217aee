package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClient_Call(t *testing.T) {
	Convey("Call 对请求和响应做统一处理", t, func() {
		var gotMethod, gotPath, gotContentType string
		var gotBody []byte
		status := http.StatusOK
		respBody := `{"ok":true}`

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.RequestURI()
			gotContentType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(respBody))
		}))
		defer srv.Close()

		client := New(srv.URL+"/", 0)
		ctx := context.Background()

		Convey("成功时返回原始响应体并发送 JSON 请求体", func() {
			raw, err := client.Call(ctx, http.MethodPost, "/api/image", map[string]string{"prompt": "a cat"})
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, `{"ok":true}`)
			So(gotMethod, ShouldEqual, http.MethodPost)
			So(gotPath, ShouldEqual, "/api/image")
			So(gotContentType, ShouldEqual, "application/json")
			So(string(gotBody), ShouldEqual, `{"prompt":"a cat"}`)
		})

		Convey("202 同样视为成功", func() {
			status = http.StatusAccepted
			respBody = `{"operationName":"op-1"}`
			var out struct {
				OperationName string `json:"operationName"`
			}
			err := client.CallJSON(ctx, http.MethodPost, "/api/video-start", map[string]string{}, &out)
			So(err, ShouldBeNil)
			So(out.OperationName, ShouldEqual, "op-1")
		})

		Convey("GET 不发送请求体", func() {
			_, err := client.Call(ctx, http.MethodGet, "/api/video-poll?operationName=x", nil)
			So(err, ShouldBeNil)
			So(gotBody, ShouldBeEmpty)
			So(gotPath, ShouldEqual, "/api/video-poll?operationName=x")
		})

		Convey("错误响应优先使用 error 字段", func() {
			status = http.StatusInternalServerError
			respBody = `{"error":"quota exceeded"}`
			_, err := client.Call(ctx, http.MethodPost, "/api/story", nil)
			var rerr *Error
			So(errors.As(err, &rerr), ShouldBeTrue)
			So(rerr.Status, ShouldEqual, http.StatusInternalServerError)
			So(rerr.Error(), ShouldEqual, "quota exceeded")
		})

		Convey("错误响应没有 error 字段时使用状态码信息", func() {
			status = http.StatusBadGateway
			respBody = `{"detail":"upstream"}`
			_, err := client.Call(ctx, http.MethodPost, "/api/story", nil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, "Request to /api/story failed with status 502")
		})

		Convey("错误响应体无法解析时使用未知错误信息", func() {
			status = http.StatusServiceUnavailable
			respBody = `<html>down</html>`
			_, err := client.Call(ctx, http.MethodPost, "/api/story", nil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, unknownErrorMessage)
		})

		Convey("成功响应无法解码到目标结构时返回错误", func() {
			respBody = `not json`
			var out map[string]any
			err := client.CallJSON(ctx, http.MethodGet, "/api/video-poll", nil, &out)
			So(err, ShouldNotBeNil)
			var rerr *Error
			So(errors.As(err, &rerr), ShouldBeFalse)
		})

		Convey("CallJSON 返回的结构可以是数组", func() {
			respBody = `[{"scene":1},{"scene":2}]`
			var out []map[string]json.Number
			err := client.CallJSON(ctx, http.MethodPost, "/api/story", nil, &out)
			So(err, ShouldBeNil)
			So(len(out), ShouldEqual, 2)
		})
	})
}

func TestClient_CallCanceled(t *testing.T) {
	Convey("上下文取消时返回传输错误而不是 remote.Error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(srv.URL, 0).Call(ctx, http.MethodGet, "/api/video-poll", nil)
		So(err, ShouldNotBeNil)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
		var rerr *Error
		So(errors.As(err, &rerr), ShouldBeFalse)
	})
}
