// Package outflow 在任务式并发调用者与单线程、反应器驱动的传输管线之间架桥:
// 生产者在尊重管线背压信号的前提下推送出站数据,并可等待一次写入被真正冲刷
// 而非仅被缓冲的确认。
package outflow
