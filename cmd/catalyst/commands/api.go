package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/catalyst-alpha/internal/api"
	"github.com/wonny/catalyst-alpha/internal/api/handlers"
	"github.com/wonny/catalyst-alpha/internal/studyconfig"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                          - Health check
  GET  /metrics                         - Prometheus metrics
  POST /api/studies                     - 이벤트 스터디 실행
  GET  /api/studies                     - 최근 실행 목록
  GET  /api/studies/{runID}             - 실행 정보
  GET  /api/studies/{runID}/results     - 이벤트별 CAR
  GET  /api/studies/{runID}/summary     - 그룹별 평균 (?by=quality_score|catalyst_type)
  GET  /api/prices/{symbol}             - 수정종가 (?from=&to=)
  GET  /api/catalysts/upcoming          - 예정 임상 카탈리스트 (?days=&condition=)

Example:
  go run ./cmd/catalyst api
  go run ./cmd/catalyst api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiStudyFile string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().StringVar(&apiStudyFile, "file", "config/study.yaml", "catalyst 조회 조건을 읽을 스터디 파일")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	// The upcoming-catalyst endpoint is optional: it needs a sponsor map
	var refresher handlers.CatalystRefresher
	if r, err := a.refresher(); err != nil {
		a.log.WithError(err).Warn("Catalyst endpoint disabled")
	} else {
		refresher = r
	}

	cfg, _, err := studyconfig.Load(apiStudyFile)
	if err != nil {
		return err
	}

	var runs handlers.RunReader
	if a.results != nil {
		runs = a.results
	}

	h := api.Handlers{
		Study:  handlers.NewStudyHandler(a.studyService(), runs, a.log),
		Market: handlers.NewMarketHandler(a.prices, refresher, cfg.CatalystQuery(), cfg.Catalyst.DaysAhead, a.log),
	}
	if a.cfg.MetricsEnabled {
		h.Metrics = a.metrics.Handler()
	}

	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	return server.Run(ctx)
}
