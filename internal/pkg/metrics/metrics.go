package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	// LoginTotal 登录请求计数（按结果区分）。
	LoginTotal *prometheus.CounterVec

	// RegisterTotal 注册请求计数（按结果区分）。
	RegisterTotal *prometheus.CounterVec

	// EmailVerifyTotal 邮箱验证请求计数（按结果区分）。
	EmailVerifyTotal *prometheus.CounterVec

	// MailSendTotal 邮件发送计数（按结果区分）。
	MailSendTotal *prometheus.CounterVec
)

// InitMetrics 注册 Prometheus 指标，可安全地多次调用。
func InitMetrics() {
	initOnce.Do(func() {
		LoginTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accounthub",
			Name:      "login_total",
			Help:      "Total login attempts by result.",
		}, []string{"result"})

		RegisterTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accounthub",
			Name:      "register_total",
			Help:      "Total register attempts by result.",
		}, []string{"result"})

		EmailVerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accounthub",
			Name:      "email_verify_total",
			Help:      "Total email verification attempts by result.",
		}, []string{"result"})

		MailSendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accounthub",
			Name:      "mail_send_total",
			Help:      "Total outbound mails by result.",
		}, []string{"result"})

		prometheus.MustRegister(LoginTotal, RegisterTotal, EmailVerifyTotal, MailSendTotal)
	})
}

// Inc 对计数器加一，vec 为 nil 时（未初始化）静默跳过。
func Inc(vec *prometheus.CounterVec, result string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(result).Inc()
}
