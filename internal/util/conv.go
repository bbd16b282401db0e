package util

import (
	"fmt"
	"strconv"
)

// ParseDay 解析路径中的天数参数，必须为正整数
func ParseDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 {
		return 0, fmt.Errorf("invalid day %q", s)
	}
	return day, nil
}
