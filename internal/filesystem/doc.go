/*
Package filesystem wraps the few filesystem calls the router makes outside the
playlist walk (stat before launching a player, reading the config file) with
retry logic for NFS stale file handle errors.

Only ESTALE triggers a retry. Other errors, including not-exist, are returned
immediately. Backoff doubles from InitialBackoff up to MaxBackoff:

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Metrics are reported through an Observer registered with SetObserver; paths
are labeled with the volume returned by the package-level VolumeResolver.
*/
package filesystem
