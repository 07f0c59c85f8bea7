package xmetrics

// 属性构造函数。取值应为低基数，如响应模式、是否丢块，不要放 request_id。

// String 字符串属性
func String(key, value string) Attr { return Attr{Key: key, Value: value} }

// Bool 布尔属性
func Bool(key string, value bool) Attr { return Attr{Key: key, Value: value} }

// Int 整数属性
func Int(key string, value int) Attr { return Attr{Key: key, Value: value} }
