// Package config loads waypoint.json.
//
// # Configuration File Structure
//
//	{
//	  "name": "wallet",
//	  "base": "/app",
//	  "history": "browser",
//	  "maxRedirects": 10,
//	  "manifest": {
//	    "path": "routes.yaml",
//	    "pollInterval": "2s"
//	  },
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 3000,
//	    "static": "public",
//	    "shell": "public/index.html"
//	  },
//	  "session": {
//	    "store": "redis",
//	    "redisAddr": "localhost:6379",
//	    "ttl": "30m"
//	  },
//	  "metrics": {"enabled": true, "namespace": "wallet"},
//	  "log": {"level": "info", "format": "json"}
//	}
//
// A manifest stored in S3 replaces "path" with
// "s3": {"bucket": "...", "key": "routes.yaml", "region": "eu-west-1"}.
// Relative paths are resolved against the directory of waypoint.json.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Address())
package config
