// Package xconf 加载 xtsdict 的配置文件，基于 koanf 实现。
//
// # 组成
//
//   - Source：一份已解析的配置（文件或字节数据），支持并发安全的 Reload
//   - StoreConfig：存储、日志、指标的领域配置，由 Load/LoadFile 从 Source 解析
//   - Watcher：基于 fsnotify 的文件监视，带防抖，变更后自动 Reload 并回调
//
// # 支持的格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// # 配置示例
//
//	capacity: 1000      # 0 或缺省表示无界
//	log:
//	  level: info
//	  format: json
//	  file: /var/log/xtsctl.log
//	metrics:
//	  enabled: true
//
// # 并发安全
//
// Source 的所有方法都是并发安全的。Reload 解析成功后才替换内部 koanf 实例，
// 解析失败时保留旧配置。Client 返回的实例在 Reload 后仍可使用，但内容是旧的。
//
// Watcher 监视配置文件所在目录而不是文件本身，以兼容编辑器的原子写入。
// Close 返回后不会再有回调执行。
package xconf
