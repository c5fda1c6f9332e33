package cmd

import (
	"context"
	"errors"
	"io/ioutil"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	reuseport "github.com/kavu/go_reuseport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/redwire/client"
	"github.com/luma/redwire/internal/render"
	"github.com/luma/redwire/pool"
	"github.com/luma/redwire/redis"
)

var (
	// The host to listen on
	host string

	// The port to listen for http requests on
	httpPort string
)

func init() {
	flags := ServeCmd.Flags()

	flags.StringVar(&httpPort, "http-port", "7362", "The port to listen to HTTP requests on")
	flags.StringVarP(&host, "host", "a", "0.0.0.0", "The host to listen on")
}

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an HTTP gateway to Redis",
	Long: `Serve an HTTP gateway to Redis

Usage
	redwire serve --http-port 7362

Routes
	GET  /ping
	GET  /keys?pattern=user:*
	GET  /scan?cursor=0&match=user:*&count=100
	POST /exec   {"args": ["SET", "greeting", "hello"]}

`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		conf, log, err := setup(ctx, cmd)
		if err != nil {
			return err
		}

		fileLimit, err := setFileLimit()
		if err != nil {
			return err
		}

		log.Info("Set file limit", zap.Uint64("fileLimit", fileLimit))

		conns := pool.New(ctx, pool.Options{
			Client:    clientOptions(conf, log),
			MaxActive: conf.PoolSize,
			Log:       log.Named("pool"),
		})
		defer conns.Close(context.Background())

		listener, err := reuseport.Listen("tcp", net.JoinHostPort(host, httpPort))
		if err != nil {
			return err
		}

		s := &http.Server{
			Handler: newRouter(conns, conf.DebugHTTP, log),
		}

		// Serving in a goroutine so that it won't block the graceful shutdown
		// handling below
		go func() {
			if err := s.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		log.Info("Listening",
			zap.String("addr", listener.Addr().String()),
			zap.String("redis", conf.Addr),
			zap.Int("db", conf.DB),
			zap.Int("poolSize", conf.PoolSize))

		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The server has 5 seconds to finish the requests it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

func newRouter(conns *pool.Pool, debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Logs all requests, like a combined access and error log, with RFC3339
	// UTC timestamps.
	r.Use(ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/health"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.GET("/ping", func(c *gin.Context) {
		withRedis(c, conns, func(r *redis.Redis) error {
			pong, err := r.Ping(c.Request.Context())
			if err != nil {
				return err
			}

			c.String(http.StatusOK, string(pong))
			return nil
		})
	})

	r.GET("/keys", func(c *gin.Context) {
		withRedis(c, conns, func(r *redis.Redis) error {
			keys, err := r.Keys(c.Request.Context(), c.DefaultQuery("pattern", "*"))
			if err != nil {
				return err
			}

			return writeJSON(c, http.StatusOK)(render.Keys("", keys))
		})
	})

	r.GET("/scan", func(c *gin.Context) {
		opts := redis.ScanOptions{Match: c.Query("match"), Type: c.Query("type")}

		if count := c.Query("count"); count != "" {
			n, err := strconv.ParseInt(count, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "count must be an integer"})
				return
			}

			opts.Count = n
		}

		withRedis(c, conns, func(r *redis.Redis) error {
			next, keys, err := r.Scan(c.Request.Context(), redis.Cursor(c.Query("cursor")), opts)
			if err != nil {
				return err
			}

			return writeJSON(c, http.StatusOK)(render.Keys(string(next), keys))
		})
	})

	r.POST("/exec", func(c *gin.Context) {
		body, err := ioutil.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		command, arguments, err := render.Args(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		withRedis(c, conns, func(r *redis.Redis) error {
			reply, err := r.Execute(c.Request.Context(), command, arguments...)
			if err != nil {
				return err
			}

			return writeJSON(c, http.StatusOK)(render.Document(reply))
		})
	})

	return r
}

// withRedis runs fn with a pooled connection and turns its error into a response.
func withRedis(c *gin.Context, conns *pool.Pool, fn func(r *redis.Redis) error) {
	err := conns.With(c.Request.Context(), fn)
	if err == nil || c.Writer.Written() {
		return
	}

	var cmdErr *redis.CommandError
	switch {
	case errors.As(err, &cmdErr) && cmdErr.Kind == redis.ServerReply:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": cmdErr.Detail})
	case errors.As(err, &cmdErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, client.ErrConnectionClosed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
}

func writeJSON(c *gin.Context, status int) func(body []byte, err error) error {
	return func(body []byte, err error) error {
		if err != nil {
			return err
		}

		c.Data(status, "application/json; charset=utf-8", body)
		return nil
	}
}

func setFileLimit() (uint64, error) {
	var rLimit syscall.Rlimit

	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	rLimit.Cur = rLimit.Max
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	return rLimit.Cur, nil
}
