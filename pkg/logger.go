package reco

type Logger interface {
	Info(message string, module string)
	Error(string)
}

var logger Logger

func SetLogger(l Logger) {
	logger = l
}

func logInfo(message string, module string) {
	if logger != nil {
		logger.Info(message, module)
	}
}

func logError(message string) {
	if logger != nil {
		logger.Error(message)
	}
}
