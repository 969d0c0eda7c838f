// Package xconf 提供配置加载与热重载能力，基于 koanf 实现。
//
// # 设计理念
//
// xconf 定位为最小化配置加载器：负责文件/字节数据的加载、
// 类型安全的反序列化与并发安全的热重载。典型用途是加载各层级
// 的限流与并发配置（见 xthrottle.Config / xadaptive），并通过
// Watch 在配置文件变更时驱动在线 Reconfigure。
//
// 配置治理（必选字段校验、默认值注入、环境变量覆盖）不在本包
// 职责范围内，由调用方在 Unmarshal 之后自行完成。
//
// # 支持的格式
//
//   - YAML（推荐）：.yaml, .yml
//   - JSON：.json
//
// # 并发安全
//
// Loader 的所有方法并发安全：Reload 在锁内完成解析与替换，
// 读路径（Unmarshal / Raw）持读锁，不会观察到半更新状态。
//
// # 配置监视
//
// Watch 基于 fsnotify 监视配置文件所在目录（兼容编辑器的原子
// 写入模式），内置防抖，变更后自动 Reload 并回调通知。
// 从字节数据创建的 Loader 不支持监视。
package xconf
