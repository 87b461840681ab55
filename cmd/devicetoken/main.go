// devicetoken 扫码设备管理工具
//
// 用法：
//
//	devicetoken -device scanner-01               # 签发设备Token
//	devicetoken -device scanner-01 -revoke -reason "丢失"
//	devicetoken -device scanner-01 -restore
//	devicetoken -device scanner-01 -info
//
// 签发只需要auth.secret；停用/恢复/查看需要Redis
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/xiebiao/stocktrack/internal/infrastructure/config"
	"github.com/xiebiao/stocktrack/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/stocktrack/pkg/jwt"
)

func main() {
	device := flag.String("device", "", "设备名，作为库存事件的操作者")
	configPath := flag.String("config", "", "配置文件路径(默认按config/config.yaml查找)")
	revoke := flag.Bool("revoke", false, "停用设备")
	restore := flag.Bool("restore", false, "恢复被停用的设备")
	info := flag.Bool("info", false, "查看设备最近活动")
	reason := flag.String("reason", "revoked by operator", "停用原因")
	revokeTTL := flag.Duration("ttl", 0, "停用时长，0表示永久")
	flag.Parse()

	if *device == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	if !*revoke && !*restore && !*info {
		manager := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
		token, err := manager.GenerateToken(*device)
		if err != nil {
			log.Fatalf("签发Token失败: %v", err)
		}
		fmt.Println(token)
		return
	}

	client, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer client.Close()
	registry := redis.NewDeviceRegistry(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch {
	case *revoke:
		if err := registry.Revoke(ctx, *device, *reason, *revokeTTL); err != nil {
			log.Fatalf("停用设备失败: %v", err)
		}
		fmt.Printf("device %s revoked\n", *device)
	case *restore:
		if err := registry.Restore(ctx, *device); err != nil {
			log.Fatalf("恢复设备失败: %v", err)
		}
		fmt.Printf("device %s restored\n", *device)
	case *info:
		printInfo(ctx, registry, *device)
	}
}

func printInfo(ctx context.Context, registry *redis.DeviceRegistry, device string) {
	revoked, err := registry.IsRevoked(ctx, device)
	if err != nil {
		log.Fatalf("查询设备失败: %v", err)
	}
	seen, err := registry.Get(ctx, device)
	if err != nil {
		log.Fatalf("查询设备失败: %v", err)
	}

	fmt.Printf("device:   %s\n", device)
	fmt.Printf("revoked:  %v\n", revoked)
	if seen == nil {
		fmt.Println("last seen: never")
		return
	}
	fmt.Printf("last seen: %s from %s\n", seen.LastSeen.Format(time.RFC3339), seen.LastIP)
	fmt.Printf("requests: %d\n", seen.Requests)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
