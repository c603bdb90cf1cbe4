package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/felixge/fgprof"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datazip-inc/mapsource/logger"
	"github.com/datazip-inc/mapsource/types"
)

var maxRequestBody int64 = 64 << 20

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve source creation over http",
	RunE: func(cmd *cobra.Command, _ []string) error {
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", viper.GetInt("SERVER_PORT")),
			Handler:           NewRouter(adapter),
			ReadTimeout:       time.Second * 60,
			ReadHeaderTimeout: time.Second * 60,
			IdleTimeout:       time.Second * 65,
		}

		errChan := make(chan error, 1)
		go func() {
			logger.Infof("serving on %s", server.Addr)
			errChan <- server.ListenAndServe()
		}()

		select {
		case err := <-errChan:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-cmd.Context().Done():
			logger.Info("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		}
	},
}

// NewRouter exposes the adapter and profiling endpoints
func NewRouter(adapter Adapter) *mux.Router {
	master := mux.NewRouter()
	master.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	master.HandleFunc("/sources", sourcesHandler(adapter)).Methods(http.MethodPost)
	master.HandleFunc("/validate", validateHandler(adapter)).Methods(http.MethodPost)

	master.HandleFunc("/debug/pprof", pprof.Index)
	master.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	master.Handle("/debug/pprof/profile", fgprof.Handler())
	master.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	master.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	master.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	master.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	master.Handle("/debug/pprof/block", pprof.Handler("block"))

	return master
}

type sourcesResponse struct {
	Sources []any `json:"sources"`
}

type validateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func sourcesHandler(adapter Adapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := readLayerFile(w, r)
		if err != nil {
			writeJSON(w, requestErrorStatus(err), errorResponse{Error: err.Error()})
			return
		}

		sources, err := adapter.CreateSources(r.Context(), file.Layers)
		if err != nil {
			logger.Warnf("failed to create sources: %s", err)
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, sourcesResponse{Sources: sourcesToAny(sources)})
	}
}

func validateHandler(adapter Adapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := readLayerFile(w, r)
		if err != nil {
			writeJSON(w, requestErrorStatus(err), errorResponse{Error: err.Error()})
			return
		}

		response := validateResponse{Valid: true}
		for idx, layer := range file.Layers {
			if err := checkLayer(adapter, layer); err != nil {
				response.Valid = false
				response.Errors = append(response.Errors, fmt.Sprintf("layer[%d]: %s", idx, err))
			}
		}

		writeJSON(w, http.StatusOK, response)
	}
}

func readLayerFile(w http.ResponseWriter, r *http.Request) (*types.LayerFile, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	file := &types.LayerFile{}
	if err := json.Unmarshal(body, file); err != nil {
		return nil, fmt.Errorf("invalid layers payload: %s", err)
	}
	for idx, layer := range file.Layers {
		if layer == nil {
			return nil, fmt.Errorf("layer[%d] is empty", idx)
		}
	}

	return file, nil
}

func requestErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}

	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("failed to write response: %s", err)
	}
}
