package llm

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Proxy forwards generation requests upstream with the server-held key so
// browsers never see it
type Proxy struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      logrus.FieldLogger
}

func NewProxy(endpoint, apiKey string, timeout time.Duration, log logrus.FieldLogger) *Proxy {
	return &Proxy{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		log:      log.WithField("component", "qwen_proxy"),
	}
}

// Handle relays the request body and answers with the upstream status and JSON
func (p *Proxy) Handle(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error", "message": err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("X-DashScope-SSE", "disable")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.WithError(err).Error("upstream request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API request failed", "message": err.Error()})
		return
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil || !gjson.ValidBytes(raw) {
		msg := "upstream returned a non-JSON body"
		if err != nil {
			msg = err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error", "message": msg})
		return
	}

	p.log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"latency": time.Since(start),
	}).Debug("proxied generation request")
	c.Data(resp.StatusCode, "application/json", raw)
}
