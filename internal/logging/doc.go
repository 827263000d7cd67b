// Package logging provides context-aware structured logging on top of zap.
//
// Every Logger method takes a context.Context and appends the correlation
// fields it carries:
//
//	ctx = logging.WithRequestID(ctx, c.Response().Header().Get(echo.HeaderXRequestID))
//	ctx = logging.WithActor(ctx, claims.Username)
//	logger.Info(ctx, "application reviewed", zap.String("ref", ref))
//
// produces
//
//	{"level":"info","ts":"2026-03-02T10:15:30.000Z","msg":"application reviewed",
//	 "service":"auditiond","request.id":"Xk2ji0Px","actor":"director","ref":"HUDT-2026-014"}
//
// The encoder drops the values of sensitive keys such as password, token and
// dsn, and blanks any string that looks like a bearer token, JWT or bcrypt
// hash. Applicant contact details are masked by the caller:
//
//	logger.Info(ctx, "confirmation queued", logging.MaskedEmail("to", app.Email))
//
// Tests use NewTestLogger and its assertions:
//
//	tl := logging.NewTestLogger()
//	svc := application.NewService(repo, notifier, tl.Logger)
//	tl.AssertLogged(t, zapcore.InfoLevel, "application submitted")
//	tl.AssertNoSecrets(t)
package logging
