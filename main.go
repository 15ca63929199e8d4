package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	flag "github.com/spf13/pflag"
)

func parseFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("socks5-proxy", flag.ContinueOnError)

	f := &cliFlags{}
	fs.StringVar(&f.configPath, "config", "", "path to an optional YAML defaults file")
	fs.StringVarP(&f.listenIP, "listen-ip", "i", "0.0.0.0", "listen IP")
	fs.IntVarP(&f.listenPort, "port", "p", 1080, "listen port")
	fs.StringVarP(&f.username, "username", "u", "", "username for authentication")
	fs.StringVarP(&f.password, "password", "P", "", "password for authentication")
	fs.StringVarP(&f.bindIP, "bind-ip", "b", "", "source IP for outbound connections")
	fs.StringVarP(&f.whitelist, "whitelist", "w", "", "comma-separated static whitelist of client IPs")
	fs.BoolVarP(&f.authOnce, "auth-once", "1", false, "add successfully authenticated IPs to the allowlist")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "suppress logging")
	fs.StringVarP(&f.reverseIP, "connect", "c", "", "reverse mode: dial this IP rather than listen")
	fs.IntVarP(&f.bridgePort, "bridge-port", "C", 0, "bridge mode: secondary listener port")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f.listenIPSet = fs.Changed("listen-ip")
	f.listenPortSet = fs.Changed("port")
	f.usernameSet = fs.Changed("username")
	f.passwordSet = fs.Changed("password")
	f.bindIPSet = fs.Changed("bind-ip")
	f.whitelistSet = fs.Changed("whitelist")
	f.authOnceSet = fs.Changed("auth-once")
	f.quietSet = fs.Changed("quiet")
	f.reverseIPSet = fs.Changed("connect")
	f.bridgePortSet = fs.Changed("bridge-port")

	return f, nil
}

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}

	cfg, whitelist, err := buildConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	auth := newAuthIPSet()
	for _, ip := range whitelist {
		auth.add(ip)
	}

	if !cfg.Quiet {
		log.Printf("[main] GOMAXPROCS: %d", runtime.GOMAXPROCS(0))
	}
	warnIfBindAddrUnassigned(cfg.BindAddr)

	var bridgeLn net.Listener
	if cfg.BridgePort > 0 {
		bridgeLn, err = listenOn(cfg.ListenIP, cfg.BridgePort)
		if err != nil {
			log.Fatalf("[main] bridge listen failed: %v", err)
		}
		if !cfg.Quiet {
			log.Printf("[main] bridge listening on %s:%d", cfg.ListenIP, cfg.BridgePort)
		}
	}

	go runStats(cfg.Quiet)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if cfg.ReverseHost != "" {
		if !cfg.Quiet {
			log.Printf("[main] reverse mode: dialing %s:%d", cfg.ReverseHost, cfg.ReversePort)
		}
		go runReverse(cfg, bridgeLn)
	} else {
		ln, err := listenOn(cfg.ListenIP, cfg.ListenPort)
		if err != nil {
			log.Fatalf("[main] %v", err)
		}
		if !cfg.Quiet {
			log.Printf("[main] listening on %s:%d", cfg.ListenIP, cfg.ListenPort)
		}
		go runNormal(ln, cfg, auth, bridgeLn)
	}

	sig := <-sigCh
	log.Printf("[main] received signal %s, shutting down...", sig)
}
