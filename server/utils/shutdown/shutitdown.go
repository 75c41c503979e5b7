/*
Copyright 2014-2017 Bo Blanton

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
 WaitGroup singleton for orderly shutdowns.

 Anything with a Stop()/Shutdown() that needs to finish work (flush files,
 drain queues) adds itself on the way down and releases when done.  The root
 caller (the SIGINT trap in main) waits on the group before exit(0).
*/

package shutdown

import "sync"

var shutdownWg sync.WaitGroup

func AddToShutdown() {
	shutdownWg.Add(1)
}

func ReleaseFromShutdown() {
	shutdownWg.Done()
}

func WaitOnShutdown() {
	shutdownWg.Wait()
}
