package mongodb

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildURI derives a mongodb:// connection string from opts. An explicit
// opts.URI always wins; otherwise the URI is assembled from host, port,
// credentials and connection parameters. Credentials are percent-escaped.
func BuildURI(opts *Options) string {
	if opts.URI != "" {
		return opts.URI
	}

	var b strings.Builder
	b.WriteString("mongodb://")

	if opts.Username != "" {
		b.WriteString(url.QueryEscape(opts.Username))
		if opts.Password != "" {
			b.WriteString(":" + url.QueryEscape(opts.Password))
		}
		b.WriteString("@")
	}

	b.WriteString(opts.Host)
	if opts.Port != 0 {
		fmt.Fprintf(&b, ":%d", opts.Port)
	}

	b.WriteString("/")
	b.WriteString(opts.Database)

	params := url.Values{}
	// admin is the driver default, no point spelling it out
	if opts.AuthSource != "" && opts.AuthSource != "admin" {
		params.Set("authSource", opts.AuthSource)
	}
	if opts.ReplicaSet != "" {
		params.Set("replicaSet", opts.ReplicaSet)
	}
	if opts.Direct {
		params.Set("directConnection", "true")
	}
	if len(params) > 0 {
		b.WriteString("?" + params.Encode())
	}

	return b.String()
}
