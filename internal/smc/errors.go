package smc

import "errors"

// ErrInsufficientData 表示请求的计算窗口内没有可用数据。
// 调用方稍后补充数据重试即可，不属于致命错误。
var ErrInsufficientData = errors.New("insufficient candle data")
