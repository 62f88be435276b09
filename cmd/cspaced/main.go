package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/setanarut/cspace"
	"github.com/setanarut/cspace/internal/config"
	"github.com/setanarut/cspace/internal/debugserver"
	"github.com/setanarut/cspace/kinbody"
)

// groupToggleTicks is the number of ticks between geometry group switches.
const groupToggleTicks = 90

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(".env"); err != nil {
		logger.Info("no .env file found, using environment variables only")
	}

	appConfig := config.Load()
	if err := appConfig.Space.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	space := cspace.NewCollisionSpace(
		cspace.WithLogger(logger.With(slog.String("component", "cspace"))),
		cspace.WithMetrics(cspace.NewMetrics(reg)),
		cspace.WithBoundingVolume(appConfig.Space.BoundingVolume),
		cspace.WithGeometryGroup(appConfig.Space.GeometryGroup),
		cspace.WithMeshBuilder(cspace.NewSDFMeshBuilder(appConfig.Space.MeshCells)),
	)

	hub := debugserver.NewHub(appConfig.Server.EventRate, logger.With(slog.String("component", "hub")))
	space.SetSynchronizationCallback(func(rec *cspace.BodyRecord) {
		hub.Publish(debugserver.EventFromRecord(rec))
	})

	env := kinbody.NewEnvironment()
	arm := buildScene(env)
	factory := indexFactory(appConfig.Space.Index)

	env.Lock()
	for _, body := range env.Bodies() {
		space.InitBody(body, nil)
	}
	space.EnvManager(factory, arm)
	env.Unlock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)
	go animate(ctx, env, space, arm, factory, appConfig.Server.SyncHz, logger)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", appConfig.Server.Port),
		Handler: debugserver.NewRouter(debugserver.RouterConfig{
			Space:    space,
			Lock:     env,
			Gatherer: reg,
			Hub:      hub,
		}),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("debug server listening", slog.Int("port", appConfig.Server.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("debug server failed", slog.Any("error", err))
		os.Exit(1)
	}

	env.Lock()
	space.DestroyEnvironment()
	env.Unlock()
}

func indexFactory(kind string) cspace.IndexFactory {
	if kind == "rtree" {
		return func() *cspace.SpatialIndex { return cspace.NewRTree("env") }
	}
	return func() *cspace.SpatialIndex { return cspace.NewAABBTree("env") }
}

// buildScene adds a two-link arm robot and a few obstacles to env and
// returns the arm.
func buildScene(env *kinbody.Environment) *kinbody.Body {
	id := cspace.NewTransformIdentity()

	arm := kinbody.NewRobot("arm")
	base := arm.AddLink("base", id,
		cspace.NewCylinderGeometry(id, 0.2, 0.4))
	upper := arm.AddLink("upper", cspace.NewTransformTranslate(mgl64.Vec3{0, 0, 0.4}),
		cspace.NewBoxGeometry(cspace.NewTransformTranslate(mgl64.Vec3{0.5, 0, 0}), mgl64.Vec3{0.5, 0.08, 0.08}),
		cspace.NewSphereGeometry(cspace.NewTransformTranslate(mgl64.Vec3{1, 0, 0}), 0.12),
	)
	base.SetGroupGeometries("coarse", cspace.NewBoxGeometry(id, mgl64.Vec3{0.2, 0.2, 0.2}))
	base.SetGroupGeometries("fine", cspace.NewCylinderGeometry(id, 0.2, 0.4))
	upper.SetGroupGeometries("coarse", cspace.NewBoxGeometry(cspace.NewTransformTranslate(mgl64.Vec3{0.55, 0, 0}), mgl64.Vec3{0.6, 0.12, 0.12}))
	upper.SetGroupGeometries("fine", upper.Geometries()...)
	env.Add(arm)

	for i, p := range []mgl64.Vec3{{1.2, 0, 0.4}, {-1, 0.8, 0.2}, {0, -1.2, 0.3}} {
		crate := kinbody.NewBody(fmt.Sprintf("crate%d", i))
		crate.AddLink("base", id, cspace.NewBoxGeometry(id, mgl64.Vec3{0.15, 0.15, 0.15}))
		crate.SetTranslation(p)
		env.Add(crate)
	}
	return arm
}

// animate swings the arm, keeps the space synchronized and reports the
// obstacles overlapping the arm links.
func animate(ctx context.Context, env *kinbody.Environment, space *cspace.CollisionSpace, arm *kinbody.Body, factory cspace.IndexFactory, hz float64, logger *slog.Logger) {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / hz))
	defer ticker.Stop()

	groups := []string{"coarse", "fine"}
	var tick int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		tick++

		env.Lock()
		angle := math.Sin(float64(tick)/(2*hz)) * math.Pi / 2
		arm.SetLinkTransform(1, cspace.NewTransform(
			mgl64.QuatRotate(angle, mgl64.Vec3{0, 0, 1}), mgl64.Vec3{0, 0, 0.4}))
		if tick%groupToggleTicks == 0 {
			space.SetGeometryGroup(groups[(tick/groupToggleTicks)%len(groups)])
		}

		space.Synchronize()
		envManager := space.EnvManager(factory, arm)
		robotManager := space.BodyManager(arm, factory, false)

		var hits int
		robotManager.Index.Each(func(obj *cspace.CollisionObject) {
			hits += len(envManager.Index.Query(obj.AABB()))
		})
		env.Unlock()

		if hits > 0 {
			logger.Debug("arm overlaps obstacles", slog.Int("pairs", hits), slog.Int("tick", tick))
		}
	}
}
