// Package fetch provides the asynchronous HTTP request primitive shared by
// the eval and terminal bridges.
//
// # Overview
//
// A [Request] is fired with [Client.Send] and completes on its own goroutine.
// Progress is reported through [Request.OnReadyStateChange]; the final
// [Response] is handed to [Request.Callback] exactly once, after the request
// reaches [Done]. Requests are not queued, cancelled, or ordered: two sends
// may complete in either order.
//
//	client := fetch.NewClient(fetch.Config{})
//	err := client.Send(ctx, &fetch.Request{
//	    URL:    "http://localhost:8000/health",
//	    Method: "GET",
//	    Callback: func(resp *fetch.Response) {
//	        fmt.Println(resp.Status, resp.ResponseText)
//	    },
//	})
//
// A non-nil error from Send means the request could not be constructed and
// no callback will run. Network failures are not errors: they arrive as a
// Response with Success false and Errno/Errstring set.
//
// # Limits
//
// [Config.AllowedHosts] restricts which hosts may be contacted (empty allows
// all), and [Config.MaxBodySize] truncates response bodies.
package fetch
