package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供路由/方法/命中状态字段，供页面请求日志复用。
func RequestFields(route, method, requestID string, cacheHit bool) logrus.Fields {
	fields := logrus.Fields{
		"route":     route,
		"method":    method,
		"cache_hit": cacheHit,
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}

// PageFields 描述单个页面，供内容存储层的警告与写入日志复用。
func PageFields(route, path, template string) logrus.Fields {
	return logrus.Fields{
		"route":    route,
		"path":     path,
		"template": template,
	}
}
