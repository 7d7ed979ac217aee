package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"animstory/internal/model"
)

const waitTimeout = 5 * time.Second

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting")
	}
	var zero T
	return zero
}

func newStoryController(t *testing.T, orch *fakeOrch, opts ...Option) *Controller {
	t.Helper()
	c := New(orch, opts...)
	c.SetTopic("a lost robot")
	c.SetSceneCount(3)
	if err := c.GenerateStory(context.Background()); err != nil {
		t.Fatalf("GenerateStory() error: %v", err)
	}
	return c
}

func sceneByNumber(st State, n int) model.Scene {
	for _, sc := range st.Scenes {
		if sc.Number == n {
			return sc
		}
	}
	return model.Scene{}
}

func TestController_GenerateStory(t *testing.T) {
	Convey("GenerateStory", t, func() {
		orch := newFakeOrch()
		c := New(orch)
		ctx := context.Background()

		Convey("默认分镜数量为 5", func() {
			So(c.Snapshot().SceneCount, ShouldEqual, model.DefaultScenes)
		})

		Convey("成功时按返回顺序整体替换分镜且不带图片视频", func() {
			for n := model.MinScenes; n <= model.MaxScenes; n++ {
				orch.storyFn = func(ctx context.Context, topic string, count int, opts model.AdvancedOptions) ([]model.Scene, error) {
					scenes := makeScenes(count)
					scenes[0].Image = &model.SceneImage{Base64: "stale"}
					scenes[0].Video = &model.SceneVideo{URL: "stale"}
					return scenes, nil
				}
				c.SetTopic("  a lost robot ")
				c.SetSceneCount(n)
				So(c.GenerateStory(ctx), ShouldBeNil)

				st := c.Snapshot()
				So(len(st.Scenes), ShouldEqual, n)
				for i, sc := range st.Scenes {
					So(sc.Number, ShouldEqual, i+1)
					So(sc.Image, ShouldBeNil)
					So(sc.Video, ShouldBeNil)
				}
				So(st.Loading, ShouldBeFalse)
				So(st.Error, ShouldBeEmpty)
			}
		})

		Convey("主题和选项原样传给编排服务，主题去除首尾空白", func() {
			var gotTopic string
			var gotOpts model.AdvancedOptions
			orch.storyFn = func(ctx context.Context, topic string, count int, opts model.AdvancedOptions) ([]model.Scene, error) {
				gotTopic, gotOpts = topic, opts
				return makeScenes(count), nil
			}
			opts := model.AdvancedOptions{Genre: "Sci-Fi", Avoid: "violence"}
			c.SetTopic("  space whales ")
			c.SetOptions(opts)
			So(c.GenerateStory(ctx), ShouldBeNil)
			So(gotTopic, ShouldEqual, "space whales")
			So(gotOpts, ShouldResemble, opts)
		})

		Convey("空主题或空白主题不发起请求并设置校验错误", func() {
			for _, topic := range []string{"", "   ", "\t\n"} {
				c.SetTopic(topic)
				err := c.GenerateStory(ctx)
				var verr *ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(c.Snapshot().Error, ShouldEqual, "Please enter a topic for your story.")
			}
			story, _, _ := orch.calls()
			So(story, ShouldEqual, 0)
		})

		Convey("分镜数量越界时不发起请求", func() {
			c.SetTopic("x")
			for _, n := range []int{0, 2, 11} {
				c.SetSceneCount(n)
				err := c.GenerateStory(ctx)
				var verr *ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(c.Snapshot().Error, ShouldEqual, "Number of scenes must be between 3 and 10.")
			}
			story, _, _ := orch.calls()
			So(story, ShouldEqual, 0)
		})

		Convey("失败时记录错误信息，分镜为空，加载标记清除", func() {
			c.SetTopic("x")
			So(c.GenerateStory(ctx), ShouldBeNil)
			orch.storyFn = func(ctx context.Context, topic string, count int, opts model.AdvancedOptions) ([]model.Scene, error) {
				return nil, errors.New("Failed to generate story.")
			}
			err := c.GenerateStory(ctx)
			So(err, ShouldNotBeNil)
			st := c.Snapshot()
			So(st.Error, ShouldEqual, "Failed to generate story.")
			So(st.Scenes, ShouldBeEmpty)
			So(st.Loading, ShouldBeFalse)
		})

		Convey("进行中时设置加载标记、清空旧分镜和错误，重复触发被忽略", func() {
			c.SetTopic("x")
			So(c.GenerateStory(ctx), ShouldBeNil)
			c.SetSceneCount(0)
			_ = c.GenerateStory(ctx)
			So(c.Snapshot().Error, ShouldNotBeEmpty)
			c.SetSceneCount(3)

			g := newGate()
			orch.storyFn = func(ctx context.Context, topic string, count int, opts model.AdvancedOptions) ([]model.Scene, error) {
				g.wait()
				return makeScenes(count), nil
			}
			result := make(chan error, 1)
			go func() { result <- c.GenerateStory(ctx) }()
			waitFor(t, g.started)

			st := c.Snapshot()
			So(st.Loading, ShouldBeTrue)
			So(st.Scenes, ShouldBeEmpty)
			So(st.Error, ShouldBeEmpty)
			So(c.GenerateStory(ctx), ShouldEqual, ErrOperationInProgress)

			close(g.release)
			So(waitFor(t, result), ShouldBeNil)
			So(c.Snapshot().Loading, ShouldBeFalse)
			So(len(c.Snapshot().Scenes), ShouldEqual, 3)
		})
	})
}

func TestController_GenerateImage(t *testing.T) {
	Convey("GenerateImage", t, func() {
		orch := newFakeOrch()
		c := newStoryController(t, orch)
		ctx := context.Background()

		Convey("使用分镜的动画提示词", func() {
			So(c.GenerateImage(ctx, 2), ShouldBeNil)
			So(orch.prompts, ShouldResemble, []string{"prompt 2"})
			img := sceneByNumber(c.Snapshot(), 2).Image
			So(img.Base64, ShouldEqual, "QUJD")
			So(img.Generating, ShouldBeFalse)
		})

		Convey("重新生成时先清空旧图片并标记生成中", func() {
			So(c.GenerateImage(ctx, 1), ShouldBeNil)

			g := newGate()
			orch.imageFn = func(ctx context.Context, prompt string) (*model.ImageResult, error) {
				g.wait()
				return &model.ImageResult{DataURL: "data:image/jpeg;base64,TkVX", Base64: "TkVX"}, nil
			}
			result := make(chan error, 1)
			go func() { result <- c.GenerateImage(ctx, 1) }()
			waitFor(t, g.started)

			img := sceneByNumber(c.Snapshot(), 1).Image
			So(img.Generating, ShouldBeTrue)
			So(img.Base64, ShouldBeEmpty)
			So(img.DataURL, ShouldBeEmpty)

			Convey("重复触发被忽略", func() {
				So(c.GenerateImage(ctx, 1), ShouldEqual, ErrOperationInProgress)
				_, images, _ := orch.calls()
				So(images, ShouldEqual, 2)
				close(g.release)
				So(waitFor(t, result), ShouldBeNil)
			})

			Convey("成功后填充内容", func() {
				close(g.release)
				So(waitFor(t, result), ShouldBeNil)
				img := sceneByNumber(c.Snapshot(), 1).Image
				So(img.Generating, ShouldBeFalse)
				So(img.Base64, ShouldEqual, "TkVX")
			})
		})

		Convey("失败时内容保持清空并记录分镜错误", func() {
			So(c.GenerateImage(ctx, 3), ShouldBeNil)
			orch.imageFn = func(ctx context.Context, prompt string) (*model.ImageResult, error) {
				return nil, errors.New("boom")
			}
			So(c.GenerateImage(ctx, 3), ShouldNotBeNil)
			st := c.Snapshot()
			img := sceneByNumber(st, 3).Image
			So(img.Generating, ShouldBeFalse)
			So(img.Base64, ShouldBeEmpty)
			So(img.DataURL, ShouldBeEmpty)
			So(st.Error, ShouldEqual, "Failed to generate image for scene 3.")
		})

		Convey("视频生成中时不允许重新生成图片", func() {
			So(c.GenerateImage(ctx, 1), ShouldBeNil)
			g := newGate()
			orch.videoFn = func(ctx context.Context, prompt, imageBase64 string) (string, error) {
				g.wait()
				return "https://x/y", nil
			}
			result := make(chan error, 1)
			go func() { result <- c.GenerateVideo(ctx, 1) }()
			waitFor(t, g.started)

			So(c.GenerateImage(ctx, 1), ShouldEqual, ErrOperationInProgress)
			close(g.release)
			So(waitFor(t, result), ShouldBeNil)
		})

		Convey("未知分镜返回 ErrSceneNotFound", func() {
			So(c.GenerateImage(ctx, 42), ShouldEqual, ErrSceneNotFound)
		})
	})
}

func TestController_ConcurrentImageFailures(t *testing.T) {
	Convey("两个分镜同时失败互不影响，第三个分镜的结果保留", t, func() {
		orch := newFakeOrch()
		c := newStoryController(t, orch)
		ctx := context.Background()
		So(c.GenerateImage(ctx, 3), ShouldBeNil)

		gates := map[string]*gate{"prompt 1": newGate(), "prompt 2": newGate()}
		orch.imageFn = func(ctx context.Context, prompt string) (*model.ImageResult, error) {
			gates[prompt].wait()
			return nil, errors.New("failed " + prompt)
		}

		var wg sync.WaitGroup
		for _, n := range []int{1, 2} {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_ = c.GenerateImage(ctx, n)
			}(n)
		}
		waitFor(t, gates["prompt 1"].started)
		waitFor(t, gates["prompt 2"].started)

		// 分镜 2 先失败
		close(gates["prompt 2"].release)
		deadline := time.Now().Add(waitTimeout)
		for sceneByNumber(c.Snapshot(), 2).Image.Generating && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		st := c.Snapshot()
		So(sceneByNumber(st, 2).Image.Generating, ShouldBeFalse)
		So(sceneByNumber(st, 1).Image.Generating, ShouldBeTrue)
		So(sceneByNumber(st, 3).Image.Base64, ShouldEqual, "QUJD")
		So(st.Error, ShouldEqual, "Failed to generate image for scene 2.")

		close(gates["prompt 1"].release)
		wg.Wait()
		st = c.Snapshot()
		So(sceneByNumber(st, 1).Image.Generating, ShouldBeFalse)
		So(sceneByNumber(st, 1).Image.Base64, ShouldBeEmpty)
		So(sceneByNumber(st, 2).Image.Base64, ShouldBeEmpty)
		So(sceneByNumber(st, 3).Image.Base64, ShouldEqual, "QUJD")
		So(sceneByNumber(st, 3).Image.Generating, ShouldBeFalse)
		So(st.Error, ShouldEqual, "Failed to generate image for scene 1.")
	})
}

func TestController_GenerateVideo(t *testing.T) {
	Convey("GenerateVideo", t, func() {
		orch := newFakeOrch()
		c := newStoryController(t, orch)
		ctx := context.Background()

		Convey("没有图片时不发起请求", func() {
			err := c.GenerateVideo(ctx, 1)
			var verr *ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(c.Snapshot().Error, ShouldEqual, "Generate an image for scene 1 before generating its video.")
			_, _, videos := orch.calls()
			So(videos, ShouldEqual, 0)
			So(sceneByNumber(c.Snapshot(), 1).Video, ShouldBeNil)
		})

		Convey("图片生成中时不发起请求", func() {
			g := newGate()
			orch.imageFn = func(ctx context.Context, prompt string) (*model.ImageResult, error) {
				g.wait()
				return &model.ImageResult{Base64: "QUJD"}, nil
			}
			result := make(chan error, 1)
			go func() { result <- c.GenerateImage(ctx, 1) }()
			waitFor(t, g.started)

			var verr *ValidationError
			So(errors.As(c.GenerateVideo(ctx, 1), &verr), ShouldBeTrue)
			close(g.release)
			So(waitFor(t, result), ShouldBeNil)
			_, _, videos := orch.calls()
			So(videos, ShouldEqual, 0)
		})

		Convey("有图片时以图片为首帧生成视频", func() {
			var gotPrompt, gotImage string
			orch.videoFn = func(ctx context.Context, prompt, imageBase64 string) (string, error) {
				gotPrompt, gotImage = prompt, imageBase64
				return "https://x/y", nil
			}
			So(c.GenerateImage(ctx, 2), ShouldBeNil)
			So(c.GenerateVideo(ctx, 2), ShouldBeNil)
			So(gotPrompt, ShouldEqual, "prompt 2")
			So(gotImage, ShouldEqual, "QUJD")
			video := sceneByNumber(c.Snapshot(), 2).Video
			So(video.URL, ShouldEqual, "https://x/y")
			So(video.Generating, ShouldBeFalse)
		})

		Convey("失败时清空视频并记录分镜错误", func() {
			So(c.GenerateImage(ctx, 2), ShouldBeNil)
			So(c.GenerateVideo(ctx, 2), ShouldBeNil)
			orch.videoFn = func(ctx context.Context, prompt, imageBase64 string) (string, error) {
				return "", errors.New("quota exceeded")
			}
			So(c.GenerateVideo(ctx, 2), ShouldNotBeNil)
			st := c.Snapshot()
			So(sceneByNumber(st, 2).Video.URL, ShouldBeEmpty)
			So(sceneByNumber(st, 2).Video.Generating, ShouldBeFalse)
			So(sceneByNumber(st, 2).Image.Base64, ShouldEqual, "QUJD")
			So(st.Error, ShouldEqual, "Failed to generate video for scene 2.")
		})
	})
}

func TestController_StaleResults(t *testing.T) {
	Convey("新故事开始后，旧故事的异步结果被丢弃", t, func() {
		orch := newFakeOrch()
		c := newStoryController(t, orch)
		ctx := context.Background()

		g := newGate()
		orch.imageFn = func(ctx context.Context, prompt string) (*model.ImageResult, error) {
			g.wait()
			return &model.ImageResult{Base64: "OLD"}, nil
		}
		result := make(chan error, 1)
		go func() { result <- c.GenerateImage(ctx, 1) }()
		waitFor(t, g.started)

		c.SetTopic("a new topic")
		So(c.GenerateStory(ctx), ShouldBeNil)
		close(g.release)
		So(waitFor(t, result), ShouldBeNil)

		st := c.Snapshot()
		So(st.Topic, ShouldEqual, "a new topic")
		So(sceneByNumber(st, 1).Image, ShouldBeNil)
		So(st.Error, ShouldBeEmpty)
	})

	Convey("会话关闭后结果被丢弃且不再接受操作", t, func() {
		orch := newFakeOrch()
		c := newStoryController(t, orch)
		ctx := context.Background()

		g := newGate()
		orch.videoFn = func(ctx context.Context, prompt, imageBase64 string) (string, error) {
			g.wait()
			return "", errors.New("late failure")
		}
		So(c.GenerateImage(ctx, 1), ShouldBeNil)
		result := make(chan error, 1)
		go func() { result <- c.GenerateVideo(ctx, 1) }()
		waitFor(t, g.started)

		c.Close()
		c.Close()
		close(g.release)
		So(waitFor(t, result), ShouldNotBeNil)
		So(c.Snapshot().Error, ShouldBeEmpty)
		So(c.GenerateImage(ctx, 2), ShouldEqual, ErrClosed)
		So(c.GenerateStory(ctx), ShouldEqual, ErrClosed)
	})
}

func TestController_Voiceover(t *testing.T) {
	Convey("配音单槽位", t, func() {
		orch := newFakeOrch()
		engine := newFakeEngine()
		c := newStoryController(t, orch, WithVoice(engine))

		Convey("播放另一个分镜时先停止当前播放", func() {
			doneA, err := c.PlayVoiceover(1)
			So(err, ShouldBeNil)
			pbA := waitFor(t, engine.started)
			So(c.Snapshot().PlayingScene, ShouldEqual, 1)

			doneB, err := c.PlayVoiceover(2)
			So(err, ShouldBeNil)
			waitFor(t, doneA)
			So(pbA.stopped.Load(), ShouldEqual, 1)
			So(c.Snapshot().PlayingScene, ShouldEqual, 2)
			pbB := waitFor(t, engine.started)

			Convey("再次请求同一分镜则停止全部播放", func() {
				done, err := c.PlayVoiceover(2)
				So(err, ShouldBeNil)
				So(done, ShouldBeNil)
				waitFor(t, doneB)
				So(pbB.stopped.Load(), ShouldEqual, 1)
				So(c.Snapshot().PlayingScene, ShouldEqual, 0)
				So(c.Snapshot().Error, ShouldBeEmpty)
			})

			Convey("生成新故事时停止播放", func() {
				So(c.GenerateStory(context.Background()), ShouldBeNil)
				waitFor(t, doneB)
				So(pbB.stopped.Load(), ShouldEqual, 1)
				So(c.Snapshot().PlayingScene, ShouldEqual, 0)
			})

			Convey("关闭会话时停止播放", func() {
				c.Close()
				waitFor(t, doneB)
				So(pbB.stopped.Load(), ShouldEqual, 1)
				So(c.Snapshot().PlayingScene, ShouldEqual, 0)
			})

			So(engine.scripts, ShouldResemble, []string{"script 1", "script 2"})
		})

		Convey("自然结束时清空槽位", func() {
			done, err := c.PlayVoiceover(3)
			So(err, ShouldBeNil)
			pb := waitFor(t, engine.started)
			pb.finish(nil)
			waitFor(t, done)
			st := c.Snapshot()
			So(st.PlayingScene, ShouldEqual, 0)
			So(st.Error, ShouldBeEmpty)
		})

		Convey("播放错误时清空槽位并记录错误", func() {
			done, err := c.PlayVoiceover(3)
			So(err, ShouldBeNil)
			pb := waitFor(t, engine.started)
			pb.finish(errors.New("audio device busy"))
			waitFor(t, done)
			st := c.Snapshot()
			So(st.PlayingScene, ShouldEqual, 0)
			So(st.Error, ShouldEqual, "Text-to-speech playback failed.")
		})

		Convey("合成失败时清空槽位并记录错误", func() {
			engine.speakErr = errors.New("synthesize failed")
			done, err := c.PlayVoiceover(1)
			So(err, ShouldBeNil)
			waitFor(t, done)
			So(c.Snapshot().PlayingScene, ShouldEqual, 0)
			So(c.Snapshot().Error, ShouldEqual, "Text-to-speech playback failed.")
		})

		Convey("StopVoiceover 可重复调用", func() {
			done, err := c.PlayVoiceover(1)
			So(err, ShouldBeNil)
			pb := waitFor(t, engine.started)
			c.StopVoiceover()
			c.StopVoiceover()
			waitFor(t, done)
			So(pb.stopped.Load(), ShouldEqual, 1)
			So(c.Snapshot().PlayingScene, ShouldEqual, 0)
		})

		Convey("未知分镜返回 ErrSceneNotFound", func() {
			_, err := c.PlayVoiceover(9)
			So(err, ShouldEqual, ErrSceneNotFound)
		})
	})

	Convey("未配置配音引擎时返回 ErrVoiceUnavailable", t, func() {
		c := newStoryController(t, newFakeOrch())
		_, err := c.PlayVoiceover(1)
		So(err, ShouldEqual, ErrVoiceUnavailable)
	})
}

func TestController_Observer(t *testing.T) {
	Convey("观察者在每次变化后收到快照", t, func() {
		var mu sync.Mutex
		var states []State
		c := New(newFakeOrch(), WithObserver(func(st State) {
			mu.Lock()
			states = append(states, st)
			mu.Unlock()
		}))

		c.SetTopic("x")
		So(c.GenerateStory(context.Background()), ShouldBeNil)

		mu.Lock()
		defer mu.Unlock()
		So(len(states), ShouldBeGreaterThanOrEqualTo, 3)
		So(states[1].Loading, ShouldBeTrue)
		last := states[len(states)-1]
		So(last.Loading, ShouldBeFalse)
		So(len(last.Scenes), ShouldEqual, model.DefaultScenes)
	})
}

func TestController_CloseNotifies(t *testing.T) {
	Convey("关闭会话时观察者收到最终快照", t, func() {
		var mu sync.Mutex
		var states []State
		engine := newFakeEngine()
		c := newStoryController(t, newFakeOrch(), WithVoice(engine), WithObserver(func(st State) {
			mu.Lock()
			states = append(states, st)
			mu.Unlock()
		}))

		done, err := c.PlayVoiceover(1)
		So(err, ShouldBeNil)
		waitFor(t, engine.started)

		mu.Lock()
		So(states[len(states)-1].PlayingScene, ShouldEqual, 1)
		mu.Unlock()

		c.Close()
		waitFor(t, done)

		mu.Lock()
		count := len(states)
		last := states[count-1]
		mu.Unlock()
		So(last.PlayingScene, ShouldEqual, 0)
		So(last.Loading, ShouldBeFalse)

		c.Close()
		mu.Lock()
		So(len(states), ShouldEqual, count)
		mu.Unlock()
	})
}
