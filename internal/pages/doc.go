// Package pages 将内容目录树物化为可寻址、可路由的页面层级。
//
// Store 是单个请求内的路径到页面的记忆表：同一路径在同一个 Store 中始终返回同一个 *Page，
// 因此"是否当前页面""是否在兄弟页面中"这类判断可以直接比较指针。Store 不是并发安全的，
// 每个请求应新建一个。写操作（Save/Duplicate/Delete）直接修改文件系统，随后重建受影响的节点，
// 并 touch 内容根目录的 mtime，外部响应缓存以此作为全站版本戳。
package pages
