// Package shardmap 提供分片的并发 map，作为 xtsmap 的底层键值存储。
//
// 本包是 internal 包，仅供 pkg/collections 下的子包使用。
//
// 每个分片持有独立的 sync.RWMutex，读操作只获取所在分片的读锁，
// 不与 xtsmap 的顺序索引锁竞争。条目总数使用原子计数维护，Len 为单次原子读取。
//
// 哈希策略：
//   - string 键使用 xxhash（与 xkeylock 分片一致）
//   - 其他 comparable 键使用 hash/maphash.Comparable，种子在 New 时随机生成
package shardmap
