// Package health gates acquisition runs on upstream service availability. A
// run only proceeds once every service it depends on answers a probe, and
// gives up once a service stays unreachable past its deadline.
package health
