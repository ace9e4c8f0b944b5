package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"wallet-tx-sol/internal/config"
	"wallet-tx-sol/internal/handler"
	"wallet-tx-sol/internal/svc"
	"wallet-tx-sol/pkg/logger"

	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
	"github.com/zeromicro/go-zero/rest"
)

var configFile = flag.String("f", "etc/txbuilder.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.Config
	config.MustLoad(*configFile, &c)

	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		panic(err)
	}
	defer logger.Sync()

	serviceContext, err := svc.NewServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	server := rest.MustNewServer(rest.RestConf{
		ServiceConf: zerosvc.ServiceConf{Name: "txbuilder"},
		Host:        c.Api.Host,
		Port:        c.Api.Port,
		Timeout:     60000,
	})
	handler.RegisterHandlers(server, serviceContext)

	sg := zerosvc.NewServiceGroup()
	sg.Add(server)

	logx.Infof("Starting tx builder api at %s:%d", c.Api.Host, c.Api.Port)

	// 启动服务
	sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logx.Info("Shutting down services...")
	sg.Stop()
}
