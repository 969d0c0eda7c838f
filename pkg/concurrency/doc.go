// Package concurrency 提供并发控制相关的子包。
//
// 子包列表：
//   - xgate: 固定容量的并发许可门
//   - xbatch: 批间串行、批内并发的批处理调度器
package concurrency
