package web

// indexHTML is the single-page dashboard. It is deliberately dependency-free
// so the binary stays self-contained.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>snapbridge</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 760px; margin: 2rem auto; color: #222; }
  h1 { font-size: 1.4rem; }
  table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
  th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #ddd; font-size: 0.9rem; }
  .state-running { color: #0a6; }
  .state-failed { color: #c33; }
  .state-completed { color: #666; }
  #log { font-family: monospace; font-size: 0.8rem; white-space: pre-wrap; background: #f6f6f6; padding: 0.6rem; max-height: 16rem; overflow-y: auto; }
  button { margin-right: 0.5rem; }
</style>
</head>
<body>
<h1>snapbridge</h1>

<form id="upload">
  <input type="file" name="file" accept=".html,.json" required>
  <button type="submit">Upload export</button>
</form>

<p>
  <button onclick="startJob('import')">Run import</button>
  <button onclick="startJob('repair', true)">Repair (dry run)</button>
  <button onclick="startJob('repair')">Repair</button>
</p>

<table>
  <thead><tr><th>Job</th><th>Kind</th><th>State</th><th>Detail</th></tr></thead>
  <tbody id="jobs"></tbody>
</table>

<h2>Progress</h2>
<div id="log"></div>

<script>
let source = null;

async function refreshJobs() {
  const res = await fetch('/api/jobs');
  const jobs = await res.json();
  const tbody = document.getElementById('jobs');
  tbody.innerHTML = '';
  for (const job of jobs) {
    const tr = document.createElement('tr');
    tr.innerHTML = '<td><a href="#" onclick="follow(\'' + job.id + '\');return false">' +
      job.id.slice(0, 8) + '</a></td><td>' + job.kind +
      '</td><td class="state-' + job.state + '">' + job.state +
      '</td><td>' + (job.detail || '') + '</td>';
    tbody.appendChild(tr);
  }
}

function follow(id) {
  if (source) source.close();
  const log = document.getElementById('log');
  log.textContent = '';
  source = new EventSource('/api/jobs/' + id + '/events');
  source.onmessage = (e) => {
    const ev = JSON.parse(e.data);
    log.textContent += '[' + ev.index + '/' + ev.total + '] ' + ev.item + ': ' + ev.status +
      (ev.message ? ' (' + ev.message + ')' : '') + '\n';
    log.scrollTop = log.scrollHeight;
  };
  source.addEventListener('done', (e) => {
    log.textContent += 'done: ' + e.data + '\n';
    source.close();
    refreshJobs();
  });
}

async function startJob(kind, dryRun = false) {
  const res = await fetch('/api/jobs', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify({ kind: kind, dry_run: dryRun }),
  });
  const body = await res.json();
  if (body.job_id) follow(body.job_id);
  refreshJobs();
}

document.getElementById('upload').addEventListener('submit', async (e) => {
  e.preventDefault();
  const data = new FormData(e.target);
  const res = await fetch('/api/exports', { method: 'POST', body: data });
  const body = await res.json();
  if (body.job_id) follow(body.job_id);
  refreshJobs();
});

refreshJobs();
setInterval(refreshJobs, 5000);
</script>
</body>
</html>`
