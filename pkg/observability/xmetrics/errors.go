package xmetrics

import "errors"

// ErrInstrument 创建 OTel 仪表失败，NewOTelObserver 返回。
// 具体失败的仪表名以 errors.Join 附在其后。
var ErrInstrument = errors.New("xmetrics: create instrument failed")
