package server

import (
	"github.com/gin-gonic/gin"
	"github.com/stratastor/ethman/internal/constants"
	"github.com/stratastor/ethman/pkg/ethernet"
	"github.com/stratastor/ethman/pkg/ethernet/api"
	"github.com/stratastor/logger"
)

func registerEthernetRoutes(engine *gin.Engine, manager *ethernet.Manager, l logger.Logger) {
	handler := api.NewEthernetHandler(manager, l)

	// API group with version
	group := engine.Group(constants.APIBase)
	handler.RegisterRoutes(group)
}
