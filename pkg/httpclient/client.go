package httpclient

import (
	"net"
	"net/http"
	"time"
)

// Controller embeds an http.Client
// and uses it internally
type Controller struct {
	*http.Client
}

var Client Controller

func init() {
	client := &http.Client{
		Transport: &http.Transport{
			// Cap on establishing the TCP connection.
			DialContext: (&net.Dialer{
				Timeout: time.Second * 3,
			}).DialContext,
			MaxIdleConnsPerHost: 50,

			// Cap on waiting for response headers.
			ResponseHeaderTimeout: time.Second * 5,
		},
		// Total per-request cap. Provider submissions run with their
		// own bounded timeout via request context on top of this.
		Timeout: 30 * time.Second,
	}
	Client = Controller{Client: client}
}
