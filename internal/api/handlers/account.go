package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AccountRoute is the account endpoint's route below /wp-json/.
const AccountRoute = "wcperfit/v1/account"

// SiteInfo is the store identity Perfit shows in its UI.
type SiteInfo struct {
	Name    string
	URL     string
	LogoURL string
}

type AccountHandler struct {
	site SiteInfo
}

func NewAccountHandler(site SiteInfo) *AccountHandler {
	return &AccountHandler{site: site}
}

type accountResponse struct {
	SiteName string  `json:"site_name"`
	SiteURL  string  `json:"site_url"`
	LogoURL  *string `json:"logo_url"`
}

func (h *AccountHandler) Get(c *gin.Context) {
	resp := accountResponse{
		SiteName: h.site.Name,
		SiteURL:  h.site.URL,
	}
	if h.site.LogoURL != "" {
		logo := h.site.LogoURL
		resp.LogoURL = &logo
	}
	c.JSON(http.StatusOK, resp)
}
