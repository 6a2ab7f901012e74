// Command healthcheck probes a running snapfeed instance and exits 0 when
// it answers, 1 otherwise. Intended for Docker HEALTHCHECK and init systems
// that cannot carry an HTTP client of their own.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

func main() {
	addr := flag.String("addr", "http://127.0.0.1:3000", "base URL of the snapfeed server")
	timeout := flag.Duration("timeout", 3*time.Second, "probe timeout")
	flag.Parse()

	url := strings.TrimRight(*addr, "/") + "/api/health"

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	client := &fasthttp.Client{
		ReadTimeout:  *timeout,
		WriteTimeout: *timeout,
	}
	if err := client.DoTimeout(req, resp, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		fmt.Fprintf(os.Stderr, "probe failed: status %d\n", resp.StatusCode())
		os.Exit(1)
	}
	fmt.Printf("ok: %s\n", resp.Body())
}
