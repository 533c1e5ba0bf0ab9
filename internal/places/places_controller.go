package places

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pitchup-app/pitchup/pkg/responses"
)

// Controller proxies venue searches to the places provider so the API key
// never reaches clients.
type Controller struct {
	client Client
	log    zerolog.Logger
}

// NewController creates a places controller.
func NewController(client Client, log zerolog.Logger) *Controller {
	return &Controller{client: client, log: log}
}

// SearchPlaces godoc
// @Summary Search for venues by free text
// @Tags Places
// @Produce json
// @Param query query string true "Free-text venue search"
// @Success 200 {object} responses.SuccessResponse{data=[]Place} "Matching places"
// @Failure 400 {object} responses.ErrorResponse "Missing query"
// @Failure 502 {object} responses.ErrorResponse "Provider error"
// @Security ApiKeyAuth
// @Router /places/search [get]
func (pc *Controller) SearchPlaces(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		responses.BadRequest(c, "Missing 'query' parameter")
		return
	}

	results, err := pc.client.TextSearch(c.Request.Context(), query)
	if err != nil {
		pc.log.Warn().Err(err).Str("query", query).Msg("places search failed")
		responses.SendError(c, http.StatusBadGateway, "Places provider unavailable")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Places retrieved successfully", results)
}
