package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"animstory/internal/config"
	"animstory/internal/model"
	"animstory/internal/pkg/ark"
	"animstory/internal/pkg/remote"
	"animstory/internal/pkg/storagefactory"
	"animstory/internal/session"
	"animstory/internal/studio"
	"animstory/internal/voice"
)

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Generate a story session against a running server",
	Long: `Drive one story session against a running AnimStory server:
generate the scenes, then optionally images, videos and a voiceover,
and export the artifacts to the configured storage.`,
	RunE: runStudio,
}

var studioOpts struct {
	topic     string
	scenes    int
	options   model.AdvancedOptions
	images    bool
	videos    bool
	voiceover int
	export    bool
}

func init() {
	rootCmd.AddCommand(studioCmd)

	flags := studioCmd.Flags()

	flags.String("server", "http://localhost:8080", "proxy server base URL")
	flags.Int("concurrency", 1, "number of scenes generated at the same time")

	flags.StringVarP(&studioOpts.topic, "topic", "t", "", "story topic")
	flags.IntVarP(&studioOpts.scenes, "scenes", "n", model.DefaultScenes, "number of scenes (3-10)")
	flags.StringVar(&studioOpts.options.Genre, "genre", "", "story genre")
	flags.StringVar(&studioOpts.options.Audience, "audience", "", "target audience")
	flags.StringVar(&studioOpts.options.Tone, "tone", "", "story tone")
	flags.StringVar(&studioOpts.options.Include, "include", "", "elements to include")
	flags.StringVar(&studioOpts.options.Avoid, "avoid", "", "elements to avoid")
	flags.BoolVar(&studioOpts.images, "images", false, "generate an image for every scene")
	flags.BoolVar(&studioOpts.videos, "videos", false, "generate a video for every scene with an image")
	flags.IntVar(&studioOpts.voiceover, "voiceover", 0, "play the voiceover of scene N and wait for it")
	flags.BoolVar(&studioOpts.export, "export", false, "export artifacts to the configured storage")

	_ = viper.BindPFlag("studio.base_url", flags.Lookup("server"))
	_ = viper.BindPFlag("studio.concurrency", flags.Lookup("concurrency"))
}

func runStudio(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []session.Option{
		session.WithObserver(func(st session.State) {
			if st.Error != "" {
				log.Warn().Str("error", st.Error).Msg("session error")
			}
		}),
	}
	if studioOpts.voiceover > 0 {
		engine, err := newVoiceEngine(&cfg.Voice)
		if err != nil {
			return fmt.Errorf("failed to create voice engine: %w", err)
		}
		opts = append(opts, session.WithVoice(engine))
	}

	svc := studio.NewService(remote.New(cfg.Studio.BaseURL, cfg.Studio.RequestTimeout))
	ctrl := session.New(svc, opts...)
	defer ctrl.Close()

	ctrl.SetTopic(studioOpts.topic)
	ctrl.SetSceneCount(studioOpts.scenes)
	ctrl.SetOptions(studioOpts.options)

	log.Info().Str("server", cfg.Studio.BaseURL).Str("topic", studioOpts.topic).Int("scenes", studioOpts.scenes).Msg("generating story")
	if err := ctrl.GenerateStory(ctx); err != nil {
		return err
	}

	if studioOpts.images {
		if err := forEachScene(ctx, ctrl, cfg.Studio.Concurrency, func(sc model.Scene) bool { return true }, ctrl.GenerateImage); err != nil {
			return err
		}
	}

	if studioOpts.videos {
		hasImage := func(sc model.Scene) bool { return sc.Image.HasContent() }
		if err := forEachScene(ctx, ctrl, cfg.Studio.Concurrency, hasImage, ctrl.GenerateVideo); err != nil {
			return err
		}
	}

	if studioOpts.voiceover > 0 {
		if err := playAndWait(ctx, ctrl, studioOpts.voiceover); err != nil {
			return err
		}
	}

	st := ctrl.Snapshot()
	printSummary(st)

	if studioOpts.export {
		store, err := storagefactory.NewStorage(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		res, err := studio.NewExporter(store, nil).Export(ctx, st.Topic, st.Scenes)
		if err != nil {
			return fmt.Errorf("failed to export story: %w", err)
		}
		fmt.Printf("exported %s -> %s\n", res.ID, res.ManifestURL)
	}

	return nil
}

// forEachScene 对满足条件的分镜并发执行 fn
// 单个分镜失败已记录在会话状态中，不影响其他分镜
func forEachScene(ctx context.Context, ctrl *session.Controller, limit int, want func(model.Scene) bool, fn func(context.Context, int) error) error {
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, sc := range ctrl.Snapshot().Scenes {
		if !want(sc) {
			continue
		}
		number := sc.Number
		g.Go(func() error {
			err := fn(ctx, number)
			if errors.Is(err, session.ErrClosed) || ctx.Err() != nil {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// playAndWait 播放配音并等待结束
func playAndWait(ctx context.Context, ctrl *session.Controller, number int) error {
	done, err := ctrl.PlayVoiceover(number)
	if err != nil {
		return err
	}
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		ctrl.StopVoiceover()
		<-done
		return ctx.Err()
	}
}

func newVoiceEngine(cfg *config.VoiceConfig) (voice.Engine, error) {
	client, err := ark.NewTTSClient(ark.TTSConfig{
		APIURL:      cfg.APIURL,
		AccessToken: cfg.AccessToken,
		AppID:       cfg.AppID,
		Cluster:     cfg.Cluster,
		VoiceType:   cfg.VoiceType,
		SampleRate:  cfg.SampleRate,
	})
	if err != nil {
		return nil, err
	}
	return voice.NewTTSEngine(client, voice.NewCommandPlayer(cfg.Player, cfg.PlayerArgs)), nil
}

func printSummary(st session.State) {
	fmt.Printf("Topic: %s\n", st.Topic)
	for _, sc := range st.Scenes {
		image := "-"
		if sc.Image.HasContent() {
			image = "ok"
		}
		video := "-"
		if sc.Video != nil && sc.Video.URL != "" {
			video = sc.Video.URL
		}
		fmt.Printf("[%d] %s\n    image: %s  video: %s\n", sc.Number, sc.Script, image, video)
	}
	if st.Error != "" {
		fmt.Fprintf(os.Stderr, "last error: %s\n", st.Error)
	}
}
