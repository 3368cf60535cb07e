// Package httpserver runs a small net/http server with graceful shutdown.
//
// Unlike http.ListenAndServe it binds in a separate step, which is what the
// loopback OAuth callback needs: the port chosen for "127.0.0.1:0" must be
// known before the callback URL is sent to Twitter.
//
//	srv := httpserver.New(httpserver.WithShutdownTimeout(time.Second))
//	addr, err := srv.Listen()
//	go srv.Run(ctx, router)
//	defer srv.Shutdown(context.Background())
//
// Run returns when ctx is done or Shutdown is called. Listen and serve failures
// wrap ErrStart; shutdown failures wrap ErrShutdown. There is no signal
// handling here, hosts pass a context from signal.NotifyContext instead.
package httpserver
