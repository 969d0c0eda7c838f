// Package xrotate 提供日志文件轮转能力。
//
// 封装 lumberjack，暴露统一的 [Rotator] 接口（io.WriteCloser 的超集），
// 供 slog 等日志库作为输出目标使用：按大小自动轮转、限制备份数量和
// 保留天数、可选 gzip 压缩。
//
// 典型用法:
//
//	rot, err := xrotate.NewLumberjack("/var/log/flowbench.log",
//		xrotate.WithMaxSizeMB(100),
//		xrotate.WithMaxBackups(5),
//	)
//	if err != nil { ... }
//	defer rot.Close()
//	logger := slog.New(slog.NewJSONHandler(rot, nil))
package xrotate
