package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/cowatch/internal/app"
	"github.com/dkeye/cowatch/internal/core"
	"github.com/dkeye/cowatch/internal/domain"
)

// RoomsController is the CRUD surface around the relay: create/list/
// delete room records and the join-by-code lookup. Ownership is scoped
// to the client token; the relay never consults any of this.
type RoomsController struct {
	Store  core.RoomStore
	Groups *app.GroupManager
}

func NewRoomsController(store core.RoomStore, groups *app.GroupManager) *RoomsController {
	return &RoomsController{Store: store, Groups: groups}
}

type createRoomRequest struct {
	Name       string `json:"name"`
	YoutubeURL string `json:"youtube_url"`
}

type roomResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Code        domain.RoomCode `json:"code"`
	YoutubeURL  string          `json:"youtube_url,omitempty"`
	OnlineCount int             `json:"online_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (ctl *RoomsController) response(meta *domain.RoomMeta) roomResponse {
	return roomResponse{
		ID:          meta.ID,
		Name:        meta.Name,
		Code:        meta.Code,
		YoutubeURL:  meta.YoutubeURL,
		OnlineCount: ctl.Groups.MemberCount(meta.Code),
		CreatedAt:   meta.CreatedAt,
	}
}

func (ctl *RoomsController) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid body"})
		return
	}
	if err := domain.ValidateRoomName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	meta := &domain.RoomMeta{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Code:       domain.NewRoomCode(),
		YoutubeURL: req.YoutubeURL,
		OwnerToken: c.GetString("client_token"),
		CreatedAt:  time.Now().UTC(),
	}
	if err := ctl.Store.Create(c.Request.Context(), meta); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("room create")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "store unavailable"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("code", string(meta.Code)).Str("name", meta.Name).Msg("room created")
	c.JSON(http.StatusCreated, ctl.response(meta))
}

func (ctl *RoomsController) List(c *gin.Context) {
	rooms, err := ctl.Store.ListByOwner(c.Request.Context(), c.GetString("client_token"))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("room list")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "store unavailable"})
		return
	}
	out := make([]roomResponse, 0, len(rooms))
	for i := range rooms {
		out = append(out, ctl.response(&rooms[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (ctl *RoomsController) Get(c *gin.Context) {
	meta, err := ctl.Store.GetByCode(c.Request.Context(), domain.RoomCode(c.Param("code")))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("room get")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "store unavailable"})
		return
	}
	if meta == nil || meta.OwnerToken != c.GetString("client_token") {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
		return
	}
	c.JSON(http.StatusOK, ctl.response(meta))
}

func (ctl *RoomsController) Delete(c *gin.Context) {
	code := domain.RoomCode(c.Param("code"))
	meta, err := ctl.Store.GetByCode(c.Request.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("room delete lookup")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "store unavailable"})
		return
	}
	if meta == nil || meta.OwnerToken != c.GetString("client_token") {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
		return
	}
	if err := ctl.Store.Delete(c.Request.Context(), code); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("room delete")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "store unavailable"})
		return
	}
	c.Status(http.StatusNoContent)
}

type joinRoomRequest struct {
	Code string `json:"code"`
}

// JoinByCode is the non-realtime lookup: any caller with the code gets
// the room record. Joining the relay itself needs no lookup at all.
func (ctl *RoomsController) JoinByCode(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Code required"})
		return
	}
	meta, err := ctl.Store.GetByCode(c.Request.Context(), domain.RoomCode(req.Code))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("room join lookup")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "store unavailable"})
		return
	}
	if meta == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
		return
	}
	c.JSON(http.StatusOK, ctl.response(meta))
}
