package environment

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/config"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/server"
)

type Servers struct {
	HTTP struct {
		Observability *http.Server
		API           *http.Server
	}
}

func newServers(ctx context.Context, cfg config.Config, logger *slog.Logger, clients *Clients, services *Services) *Servers {
	var servers Servers

	servers.HTTP.API = server.NewServer(cfg.API, services.APIHandler)
	servers.HTTP.Observability = initObservability(ctx, logger.WithGroup("http"), clients, cfg)

	return &servers
}
