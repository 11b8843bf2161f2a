package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pion/webrtc/v4"

	"github.com/qrave1/anonspeak/internal/application/config"
	"github.com/qrave1/anonspeak/internal/infra/ports/http/dto"
)

type IceHandler struct {
	cfg *config.Config

	now func() time.Time
}

func NewIceHandler(cfg *config.Config) *IceHandler {
	return &IceHandler{cfg: cfg, now: time.Now}
}

// IceServers отдает STUN и, если настроен coturn, TURN с временными кредами
func (h *IceHandler) IceServers(c echo.Context) error {
	servers := h.cfg.ICEServers()

	if h.cfg.Coturn.Enabled() {
		servers = append(servers, h.turnServer())
	}

	if servers == nil {
		servers = []webrtc.ICEServer{}
	}

	return c.JSON(http.StatusOK, dto.IceServersResponse{ICEServers: servers})
}

// turnServer креды по схеме coturn use-auth-secret: username = время истечения
func (h *IceHandler) turnServer() webrtc.ICEServer {
	expiration := h.now().Add(h.cfg.Coturn.TTL).Unix()
	username := fmt.Sprintf("%d", expiration)

	// Создаём HMAC-SHA1 с использованием static-auth-secret
	mac := hmac.New(sha1.New, []byte(h.cfg.Coturn.Secret))
	mac.Write([]byte(username))
	password := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return webrtc.ICEServer{
		URLs: []string{
			fmt.Sprintf("turn:%s?transport=udp", h.cfg.Coturn.Host),
			fmt.Sprintf("turn:%s?transport=tcp", h.cfg.Coturn.Host),
		},
		Username:   username,
		Credential: password,
	}
}
