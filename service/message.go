package service

import (
	"fmt"
	"time"
)

const challengeTemplate = "Welcome to %s!\n\n" +
	"Sign in with your wallet to continue. This request will not trigger a blockchain transaction or cost any gas fees.\n\n" +
	"Your address is %s and this message is valid for 1 minute. Now is %s."

// ISO 8601 with milliseconds, as browsers print it
const challengeTimeLayout = "2006-01-02T15:04:05.000Z07:00"

func challengeText(appName, address string, now time.Time) string {
	return fmt.Sprintf(challengeTemplate, appName, address, now.UTC().Format(challengeTimeLayout))
}

func challengeKey(address string) string {
	return "session:message:" + address
}

func linkStateKey(state string) string {
	return "github:oauth:state:" + state
}
