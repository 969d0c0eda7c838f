// Package config 提供配置加载相关的子包。
//
// 子包列表：
//   - xconf: 基于 koanf 的配置加载、重载与文件变更监听
package config
