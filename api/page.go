package api

import "net/http"

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(indexPageHTML))
}

const indexPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>qrforge</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
    background: #0a0a0a;
    color: #e0e0e0;
    display: flex;
    justify-content: center;
    align-items: center;
    min-height: 100vh;
  }
  .card {
    background: #1a1a1a;
    border: 1px solid #333;
    border-radius: 16px;
    padding: 48px;
    text-align: center;
    max-width: 460px;
    width: 100%;
  }
  h1 { font-size: 20px; font-weight: 600; margin-bottom: 8px; }
  .subtitle { color: #888; font-size: 14px; margin-bottom: 24px; }
  form { display: flex; flex-direction: column; gap: 12px; margin-bottom: 24px; }
  input, select {
    background: #0a0a0a;
    border: 1px solid #333;
    border-radius: 8px;
    color: #e0e0e0;
    padding: 10px 12px;
    font-size: 14px;
  }
  .row { display: flex; gap: 12px; }
  .row > * { flex: 1; }
  button {
    background: #e0e0e0;
    border: none;
    border-radius: 8px;
    color: #0a0a0a;
    cursor: pointer;
    font-size: 14px;
    font-weight: 600;
    padding: 10px 12px;
  }
  #qr-container {
    width: 280px;
    margin: 0 auto;
    display: flex;
    align-items: center;
    justify-content: center;
    background: #fff;
    border-radius: 12px;
    min-height: 120px;
  }
  #qr-container img { max-width: 260px; }
  #error { color: #f87171; font-size: 13px; margin-top: 12px; min-height: 1em; }
</style>
</head>
<body>
<div class="card">
  <h1>qrforge</h1>
  <p class="subtitle">Turn a URL into a scannable QR code</p>
  <form id="form">
    <input type="text" id="data" placeholder="https://example.com" required>
    <input type="text" id="caption" placeholder="Caption (optional)">
    <div class="row">
      <select id="level">
        <option value="L">Level L</option>
        <option value="M" selected>Level M</option>
        <option value="Q">Level Q</option>
        <option value="H">Level H</option>
      </select>
      <select id="size">
        <option value="6">Small</option>
        <option value="10" selected>Medium</option>
        <option value="16">Large</option>
      </select>
    </div>
    <button type="submit">Generate</button>
  </form>
  <div id="qr-container"><span style="color:#888;font-size:13px">No code yet</span></div>
  <div id="error"></div>
</div>
<script>
(function() {
  var form = document.getElementById('form');
  var container = document.getElementById('qr-container');
  var errorEl = document.getElementById('error');

  function clearChildren(el) {
    while (el.firstChild) el.removeChild(el.firstChild);
  }

  form.addEventListener('submit', function(ev) {
    ev.preventDefault();
    errorEl.textContent = '';
    fetch('/qr', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify({
        data: document.getElementById('data').value,
        caption: document.getElementById('caption').value,
        level: document.getElementById('level').value,
        module_size: parseInt(document.getElementById('size').value, 10)
      })
    })
      .then(function(r) { return r.json().then(function(body) { return { ok: r.ok, body: body }; }); })
      .then(function(res) {
        if (!res.ok) {
          errorEl.textContent = res.body.error || 'Generation failed';
          return;
        }
        clearChildren(container);
        var img = document.createElement('img');
        img.setAttribute('alt', 'QR Code');
        img.setAttribute('src', res.body.data_uri);
        container.appendChild(img);
      })
      .catch(function() {
        errorEl.textContent = 'Connection error';
      });
  });
})();
</script>
</body>
</html>`
