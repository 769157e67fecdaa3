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

	"github.com/voicebridge/voicebridge/internal/application/config"
)

type IceHandler struct {
	cfg *config.Config
}

func NewIceHandler(cfg *config.Config) *IceHandler {
	return &IceHandler{cfg: cfg}
}

// IceServers hands the client its ICE server list. With coturn
// configured it mints short-lived HMAC credentials; otherwise clients
// fall back to public STUN.
func (h *IceHandler) IceServers(c echo.Context) error {
	if h.cfg.CoturnServer.Host == "" {
		return c.JSON(http.StatusOK, []webrtc.ICEServer{h.cfg.StunServer})
	}

	expiration := time.Now().Add(time.Hour).Unix()
	username := fmt.Sprintf("%d", expiration)

	mac := hmac.New(sha1.New, []byte(h.cfg.CoturnServer.Secret))
	mac.Write([]byte(username))
	password := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	turn := webrtc.ICEServer{
		URLs: []string{
			fmt.Sprintf("turn:%s?transport=udp", h.cfg.CoturnServer.Host),
			fmt.Sprintf("turn:%s?transport=tcp", h.cfg.CoturnServer.Host),
		},
		Username:   username,
		Credential: password,
	}

	return c.JSON(http.StatusOK, []webrtc.ICEServer{h.cfg.StunServer, turn})
}
